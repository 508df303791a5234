//go:build !linux

package dedupr

func adviseSequential(file interface{}) {}

func adviseRandom(file interface{}) {}
