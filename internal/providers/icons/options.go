package icons

import "time"

// Defaults for icon fetching
const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "sitewrap-icon-fetcher/0.1"
	DefaultMaxBytes  = 5 * 1024 * 1024

	DefaultRequestsPerSecond = 8
	DefaultRetryMax          = 2
	DefaultRetryWaitMin      = 250 * time.Millisecond
	DefaultRetryWaitMax      = 2 * time.Second
)

// Sizes is the icon ladder every web app is rendered at
var Sizes = []int{16, 32, 48, 64, 128, 256, 512}

// LauncherSize is the ladder entry handed to the desktop launcher
const LauncherSize = 128

// Options configures a Fetcher
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	MaxBytes          int64
	RequestsPerSecond float64
	Sizes             []int

	// RetryMax below zero disables retries
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
		Sizes:     Sizes,

		RequestsPerSecond: DefaultRequestsPerSecond,
		RetryMax:          DefaultRetryMax,
		RetryWaitMin:      DefaultRetryWaitMin,
		RetryWaitMax:      DefaultRetryWaitMax,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = d.MaxBytes
	}
	if len(o.Sizes) == 0 {
		o.Sizes = d.Sizes
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = d.RequestsPerSecond
	}
	switch {
	case o.RetryMax < 0:
		o.RetryMax = 0
	case o.RetryMax == 0:
		o.RetryMax = d.RetryMax
	}
	if o.RetryWaitMin <= 0 {
		o.RetryWaitMin = d.RetryWaitMin
	}
	if o.RetryWaitMax < o.RetryWaitMin {
		o.RetryWaitMax = max(d.RetryWaitMax, o.RetryWaitMin)
	}
	return o
}
