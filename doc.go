// Package spk reads SPK game packages in memory and serves their files as
// independent resources.
//
// An SPK package is a single binary blob holding many files plus an index of
// each file's name, offset, and length. This package parses that index and
// exposes the packaged files without extracting them to disk:
//
//	data, err := os.ReadFile("game.spk")
//	if err != nil {
//	    return err
//	}
//	archive, err := spk.Parse(data)
//	if err != nil {
//	    return err
//	}
//	script, ok := archive.EntryData("scripts/main.js")
//
// Archive implements fs.FS, fs.StatFS, and fs.ReadFileFS for files, so it can
// be used with http.FS and the io/fs helpers.
//
// # Serving packages
//
// The [router] subpackage intercepts outbound HTTP requests whose path runs
// through a package (for example https://host/game.spk/scripts/main.js) and
// answers them from the package contents. Packages are fetched and parsed at
// most once per location by the [cache] subpackage.
//
// Entries are always served exactly as stored. The per-entry compressed
// length is carried in [Entry] but never acted on.
package spk
