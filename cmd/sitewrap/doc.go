// Package main is the sitewrap command.
//
// sitewrap turns websites into desktop apps. Without flags, or with
// --manager, it opens the manager where web apps are created, edited and
// removed. Launchers start `sitewrap --shell <id>`, which opens the window
// of one web app.
//
// Usage:
//
//	sitewrap [--manager]
//	sitewrap --shell 0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0
//
// Exit codes:
//   - 0: Clean exit
//   - 1: Startup failure, including an unknown web app id
//   - 2: Invalid command line
//
// Configuration comes from the environment (SITEWRAP_CONFIG_ROOT,
// SITEWRAP_CEF_ROOT, LOG_LEVEL and friends); see internal/infrastructure/config.
package main
