//go:build !dev

package config

func loadDotEnv() error { return nil }
