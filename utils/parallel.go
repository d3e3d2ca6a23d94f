// Package utils contains small shared helpers for parallel work and float math.
package utils

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated number of groups.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel parallelizes the given size of work over multiple workers. The range
// [0, totalSize) is split into contiguous groups; the last group absorbs the remainder.
// Groups never share a work number, so members may write to disjoint slots of shared
// slices without locking. A panicking group stops early and its panic is returned as an error.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if before != nil {
		before(numGroups)
	}
	if numGroups == 0 {
		return nil
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	var wait sync.WaitGroup
	var panicMu sync.Mutex
	var panics error
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGoWithCallback(func() {
			groupNum := groupNumCopy
			if ctx.Err() == nil {
				thisGroupSize := groupSize
				thisExtra := 0
				if groupNum == (numGroups - 1) {
					thisExtra = extra
					thisGroupSize += thisExtra
				}
				from := groupSize * groupNum
				to := (groupSize * (groupNum + 1)) + thisExtra
				memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
				if memberWork != nil {
					memberNum := 0
					for workNum := from; workNum < to; workNum++ {
						memberWork(memberNum, workNum)
						memberNum++
					}
				}
				if groupWorkDone != nil {
					groupWorkDone()
				}
			}
			wait.Done()
		}, func(thePanic interface{}) {
			// a panicking group never reaches its own Done
			panicMu.Lock()
			panics = multierr.Combine(panics, errors.Errorf("panic in work group %d: %v", groupNumCopy, thePanic))
			panicMu.Unlock()
			wait.Done()
		})
	}
	wait.Wait()
	return multierr.Combine(panics, ctx.Err())
}

// ForEachParallel calls f for every index in [0, totalSize) using GroupWorkParallel. The first
// failing index of each group stops that group; all group errors are combined.
func ForEachParallel(ctx context.Context, totalSize int, f func(i int) error) error {
	var errMu sync.Mutex
	var combined error
	if err := GroupWorkParallel(
		ctx,
		totalSize,
		nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			var groupErr error
			return func(memberNum, workNum int) {
					if groupErr != nil {
						return
					}
					if err := f(workNum); err != nil {
						groupErr = errors.Wrapf(err, "work item %d", workNum)
					}
				}, func() {
					if groupErr == nil {
						return
					}
					errMu.Lock()
					combined = multierr.Combine(combined, groupErr)
					errMu.Unlock()
				}
		},
	); err != nil {
		return multierr.Combine(err, combined)
	}
	return combined
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}
