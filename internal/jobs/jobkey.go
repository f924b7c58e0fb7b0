// Package jobs defines the cloud job domain model: job keys, finished-job
// summaries and the constants of the remote job-listing API.
package jobs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// KeySeparator joins the three numeric parts of a job key.
const KeySeparator = "/"

// ErrInvalidJobKey is returned when a job key cannot be built or parsed.
var ErrInvalidJobKey = errors.New("invalid job key")

// JobKey identifies one job as "project/spider/job", three strictly
// positive integers. Immutable once constructed.
type JobKey struct {
	projectID int
	spiderID  int
	jobNum    int
}

// NewJobKey builds a key from its parts. All parts must be positive.
func NewJobKey(projectID, spiderID, jobNum int) (JobKey, error) {
	for _, part := range []int{projectID, spiderID, jobNum} {
		if part <= 0 {
			return JobKey{}, fmt.Errorf("%w: parts must be positive, got %d/%d/%d",
				ErrInvalidJobKey, projectID, spiderID, jobNum)
		}
	}
	return JobKey{projectID: projectID, spiderID: spiderID, jobNum: jobNum}, nil
}

// ParseJobKey parses the canonical "project/spider/job" form.
func ParseJobKey(s string) (JobKey, error) {
	parts := strings.Split(s, KeySeparator)
	if len(parts) != 3 {
		return JobKey{}, fmt.Errorf("%w: %q must have 3 parts", ErrInvalidJobKey, s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return JobKey{}, fmt.Errorf("%w: %q part %d is not an integer", ErrInvalidJobKey, s, i+1)
		}
		nums[i] = n
	}
	return NewJobKey(nums[0], nums[1], nums[2])
}

// ProjectID returns the project part.
func (k JobKey) ProjectID() int {
	return k.projectID
}

// SpiderID returns the spider part.
func (k JobKey) SpiderID() int {
	return k.spiderID
}

// JobNum returns the job sequence number, the part that grows
// monotonically per spider and drives incremental fetching.
func (k JobKey) JobNum() int {
	return k.jobNum
}

// IsZero reports whether the key is unset.
func (k JobKey) IsZero() bool {
	return k == JobKey{}
}

// String returns the canonical "project/spider/job" form.
func (k JobKey) String() string {
	return strings.Join([]string{
		strconv.Itoa(k.projectID),
		strconv.Itoa(k.spiderID),
		strconv.Itoa(k.jobNum),
	}, KeySeparator)
}
