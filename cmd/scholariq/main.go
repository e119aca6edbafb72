// Package main is the entry point for the ScholarIQ backend.
//
// @title          ScholarIQ API
// @version        1.0
// @description    AI-powered student analytics platform: content analysis API and development tooling.
// @host           localhost:8000
// @BasePath       /
// @schemes        http
package main

func main() {
	Execute()
}
