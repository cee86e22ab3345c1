// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// AppName is the default human-readable service name
const AppName = "Celestial Mechanics Calculations API"

// AppVersion is the default API version reported by /health
const AppVersion = "0.1.0"

// Version holds the build version information
const Version = AppVersion + "-" + runtime.GOOS + "/" + runtime.GOARCH

// GRPCServiceName is the name registered with the gRPC health service
const GRPCServiceName = "celestial.v1.Coordinates"
