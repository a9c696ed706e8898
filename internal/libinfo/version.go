/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo reports the version of the docgate module the binary was built with.
package libinfo

import (
	"runtime/debug"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	moduleName     = "github.com/acronis/go-docgate"
	productName    = "docgate"
	unknownVersion = "v0.0.0"
)

// PrometheusVersionLabel is the constant label with the module version added to the service metrics.
const PrometheusVersionLabel = "docgate_version"

var (
	version     string
	versionOnce sync.Once
)

// Version returns the module version from the build info, or "v0.0.0" for development builds.
func Version() string {
	versionOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		if version = moduleVersion(info, moduleName); version == "" {
			version = unknownVersion
		}
	})
	return version
}

// UserAgent returns the User-Agent sent to CRPT, e.g. "docgate/v1.2.0".
func UserAgent() string {
	return productName + "/" + Version()
}

// AddPrometheusVersionLabel returns a copy of labels with PrometheusVersionLabel added.
func AddPrometheusVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		res[k] = v
	}
	res[PrometheusVersionLabel] = Version()
	return res
}

// moduleVersion looks the module up as the main module first and then among the dependencies.
// Major version suffixes ("/v2") are accepted.
func moduleVersion(info *debug.BuildInfo, modName string) string {
	if info == nil {
		return ""
	}
	if isModule(info.Main.Path, modName) && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep != nil && isModule(dep.Path, modName) {
			return dep.Version
		}
	}
	return ""
}

func isModule(path, modName string) bool {
	if path == modName {
		return true
	}
	suffix := strings.TrimPrefix(path, modName+"/v")
	if suffix == path || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
