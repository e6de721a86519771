// Package storage manages the download directory layout for archive
// downloads.
//
// Files stream into in_progress/<name>.part and move to completed/<name>
// only after the full body has been written and the byte count verified,
// so a crash never leaves a truncated file in the completed directory.
// Completed files are indexed on startup so finished downloads are skipped.
// Zip archives can be extracted into completed/<stem>/ with optional
// removal of the archive afterwards.
//
// Usage:
//
//	manager, err := storage.NewManager("downloads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !manager.IsComplete("scene.zip", expectedSize) {
//	    path, written, err := manager.Save(body, "scene.zip", expectedSize)
//	    ...
//	}
package storage
