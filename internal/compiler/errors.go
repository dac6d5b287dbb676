package compiler

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError is raised when a job input has no upstream
// producer and is not declared as an externally supplied file.
type UnresolvedReferenceError struct {
	JobID   string
	JobName string
	File    string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: input %q of job %s (%s) has no producer and is not externally supplied",
		e.File, e.JobName, e.JobID)
}

// AmbiguousTargetError is raised when a graph-level output resolves to
// zero or more than one upstream producer slot.
type AmbiguousTargetError struct {
	Param      string
	Candidates []string // "nodeID.param" pairs, empty when unresolved
}

func (e *AmbiguousTargetError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("unresolved output: graph output %q matches no upstream producer", e.Param)
	}
	return fmt.Sprintf("ambiguous target resolution: graph output %q matches multiple producers: %s",
		e.Param, strings.Join(e.Candidates, ", "))
}

// DuplicateParamError is raised when two distinct file refs in one job's
// parameter list derive the same parameter name.
type DuplicateParamError struct {
	JobID string
	Param string
	Files []string
}

func (e *DuplicateParamError) Error() string {
	return fmt.Sprintf("duplicate parameter name %q in job %s (files %s)",
		e.Param, e.JobID, strings.Join(e.Files, ", "))
}

// ConflictingInputError is raised when two jobs assign the same graph-level
// input name to different files.
type ConflictingInputError struct {
	Param string
	Paths []string
}

func (e *ConflictingInputError) Error() string {
	return fmt.Sprintf("conflicting external input %q refers to different files: %s",
		e.Param, strings.Join(e.Paths, ", "))
}
