package filter

import "github.com/tinytelemetry/flowdeck/internal/model"

// BucketCounts tallies flows per status bucket for the dashboard chart.
type BucketCounts struct {
	Informational int // status below 200
	Success       int
	Redirect      int
	ClientError   int
	ServerError   int
	NoStatus      int
}

// Total is the number of flows counted.
func (c BucketCounts) Total() int {
	return c.Informational + c.Success + c.Redirect + c.ClientError + c.ServerError + c.NoStatus
}

// CountBuckets counts flows per bucket.
func CountBuckets(flows []model.Flow) BucketCounts {
	var c BucketCounts
	for _, f := range flows {
		switch Bucket(f.Status) {
		case Status2xx:
			c.Success++
		case Status3xx:
			c.Redirect++
		case Status4xx:
			c.ClientError++
		case Status5xx:
			c.ServerError++
		case StatusNone:
			c.NoStatus++
		default:
			c.Informational++
		}
	}
	return c
}
