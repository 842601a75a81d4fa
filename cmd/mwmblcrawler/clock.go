package main

import "time"

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func timeAfter(d time.Duration) <-chan time.Time {
	return time.After(d)
}
