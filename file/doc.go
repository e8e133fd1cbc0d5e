// Package file handles the files that toolsuniverse reads and writes.
//
// Inputs are loaded through Load, which validates the path, enforces the
// size limit from the limits package and checks the content type by sniffing
// the first bytes instead of trusting the file extension. Outputs are written
// through WriteArtifact, which records a time-ordered ID and a BLAKE2b-256
// checksum for every file so a run can be described by a JSON manifest.
//
// # Loading Inputs
//
//	in, err := file.Load("song.wav", file.KindAudio)
//	if err != nil {
//	    // file.ErrInvalidFileType, file.ErrEmptyInput, file.ErrFileTooLarge
//	    // or file.ErrDirectoryTraversal
//	}
//	buf, err := file.DecodeAudio(in)
//
// Accepted audio is anything sniffed as audio/* plus Ogg containers, which
// are sniffed as application/ogg. Accepted images are image/*.
//
// # Writing Artifacts
//
//	art, err := file.WriteArtifact(outDir, "song-denoised.wav", data)
//	fmt.Println(art.ID, art.Checksum)
//
//	manifest := file.NewManifest("denoise")
//	manifest.Add(art)
//	_, err = file.WriteManifest(outDir, manifest)
//
// Artifacts are written to a temporary file and renamed into place, so a
// failed run never leaves a truncated output behind.
//
// # Security
//
// Path Validation: Directory traversal attacks are prevented:
//
//	if _, err := file.ValidatePath(path); err != nil {
//	    // err == file.ErrDirectoryTraversal
//	}
//
// Artifact names must be plain file names; separators are rejected.
package file
