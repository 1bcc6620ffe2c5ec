// Package builtin ships the plugins most hosts want without writing
// their own.
//
// # Overview
//
//   - Config: loads YAML configuration files, distributes each
//     plugin's section through receive_config during init and watches
//     the files for changes while running.
//   - Logging: adjusts the shared logger's level and format from its
//     configuration section.
//   - Discovery: registers plugins found by discovery sources during
//     bootstrap.
//   - WebServer: serves plugin, health and metrics endpoints over HTTP
//     for the lifetime of the run phase.
//
// All of them are ordinary plugins; hosts pass the ones they want to
// lifecycle.LaunchApplication alongside their own.
package builtin
