package pointpca

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/pointpca/pointcloud"
)

func TestConfigValidate(t *testing.T) {
	conf := &Config{}
	test.That(t, conf.Validate("path"), test.ShouldBeNil)
	test.That(t, DefaultConfig(), test.ShouldResemble, Config{
		SearchSize: pointcloud.DefaultSearchSize,
		ColorSpace: pointcloud.ColorSpaceYCbCr,
		Pooling:    PoolingMean,
	})

	conf = &Config{SearchSize: -1}
	err := conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "search_size")
	test.That(t, err.Error(), test.ShouldContainSubstring, "path")

	conf = &Config{ColorSpace: "hsv"}
	test.That(t, conf.Validate("path"), test.ShouldNotBeNil)

	conf = &Config{Pooling: "sum"}
	test.That(t, conf.Validate("path"), test.ShouldNotBeNil)

	conf = &Config{SearchSize: 5, ColorSpace: pointcloud.ColorSpaceLab, Pooling: PoolingMedian, Symmetric: true}
	test.That(t, conf.Validate("path"), test.ShouldBeNil)
	test.That(t, conf.withDefaults(), test.ShouldResemble, *conf)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "config.json")
	test.That(t, os.WriteFile(fn, []byte(`{"search_size": 27, "pooling": "max", "symmetric": true}`), 0o600), test.ShouldBeNil)

	conf, err := ReadConfig(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, Config{
		SearchSize: 27,
		ColorSpace: pointcloud.ColorSpaceYCbCr,
		Pooling:    PoolingMax,
		Symmetric:  true,
	})

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte(`{"color_space": "cmyk"}`), 0o600), test.ShouldBeNil)
	_, err = ReadConfig(bad)
	test.That(t, err, test.ShouldNotBeNil)

	garbage := filepath.Join(dir, "garbage.json")
	test.That(t, os.WriteFile(garbage, []byte(`{`), 0o600), test.ShouldBeNil)
	_, err = ReadConfig(garbage)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadConfig(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParsePooling(t *testing.T) {
	for _, name := range []string{"mean", "max", "min", "median", "std"} {
		p, err := ParsePooling(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(p), test.ShouldEqual, name)
	}
	p, err := ParsePooling("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, PoolingMean)
	_, err = ParsePooling("mode")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSlots(t *testing.T) {
	names := map[string]bool{}
	for i, s := range Slots {
		test.That(t, s.Index, test.ShouldEqual, i)
		test.That(t, s.Name, test.ShouldNotBeEmpty)
		test.That(t, names[s.Name], test.ShouldBeFalse)
		names[s.Name] = true

		found, ok := SlotByName(s.Name)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, found.Index, test.ShouldEqual, i)

		refOnly := i >= SlotGeoRefPlaneDist1 && i <= SlotGeoTestPlaneDist2
		test.That(t, s.HasIdentity(), test.ShouldEqual, !refOnly)
	}
	test.That(t, Slots[SlotColorMeanL2Diff].Name, test.ShouldEqual, "color_mean_l2_diff")
	_, ok := SlotByName("nope")
	test.That(t, ok, test.ShouldBeFalse)
}
