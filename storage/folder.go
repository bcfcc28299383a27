package storage

import (
	"fmt"
	"os"
	"strings"
)

// FolderKind classifies the content of a database directory.
type FolderKind int

const (
	FolderEmpty FolderKind = iota
	FolderBadger
	FolderPebble
	FolderUnknown
)

func (k FolderKind) String() string {
	switch k {
	case FolderEmpty:
		return "empty"
	case FolderBadger:
		return "badger"
	case FolderPebble:
		return "pebble"
	default:
		return "unknown"
	}
}

// InspectFolder reports which database, if any, the directory at path holds.
// A directory that does not exist is empty, as both backends create it on open.
func InspectFolder(path string) (FolderKind, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FolderEmpty, nil
	}
	if err != nil {
		return FolderUnknown, err
	}
	if !info.IsDir() {
		return FolderUnknown, fmt.Errorf("%s is not a directory", path)
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return FolderUnknown, err
	}
	if len(files) == 0 {
		return FolderEmpty, nil
	}

	var (
		pebbleManifest, manifestMarker, options bool
		badgerManifest, registry, vlog          bool
	)
	for _, file := range files {
		name := file.Name()
		switch {
		case strings.HasPrefix(name, "MANIFEST-"):
			pebbleManifest = true
		case name == "MANIFEST":
			badgerManifest = true
		// pebble v1 points to the manifest through CURRENT, v2 through a marker file
		case name == "CURRENT" || strings.HasPrefix(name, "marker.manifest."):
			manifestMarker = true
		case strings.HasPrefix(name, "OPTIONS-"):
			options = true
		case name == "KEYREGISTRY":
			registry = true
		case strings.HasSuffix(name, ".vlog"):
			vlog = true
		}
	}

	switch {
	case pebbleManifest && (manifestMarker || options):
		return FolderPebble, nil
	case badgerManifest && registry && vlog:
		return FolderBadger, nil
	default:
		return FolderUnknown, nil
	}
}
