//go:build excludemain

package main

func init() {
	serveWaitForShutdown = func() {}
}
