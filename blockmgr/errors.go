package blockmgr

import "errors"

// ErrReleaseFailed wraps a provider failure encountered while releasing a
// block chain, distinguishing it from a release failure caused by bad
// caller input (which surfaces as platform.ErrInvalidInput instead).
var ErrReleaseFailed = errors.New("blockmgr: release failed")
