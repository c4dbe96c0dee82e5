// Package binary copies, hashes and verifies the bundled Espressif
// executables.
//
// # Integrity Model
//
// Every bundled tool is identified by the SHA-1 digest of its decompressed
// bytes, computed once by the release bundler and recorded in the payload
// manifest. The same digest is recomputed while the executable is streamed to
// disk, and it also names the cache directory the file lives in:
//   - A digest mismatch during extraction is a hard error
//   - A file found at a digest-derived path is trusted unless re-verification
//     is requested
//   - The payload manifest itself may carry an OpenPGP detached signature
//
// # Streaming
//
// CopyHashed moves data in fixed 32 KiB chunks, so entries of any size are
// extracted with bounded memory. Passing io.Discard as the destination turns
// it into a pure digest computation.
//
// # Usage
//
//	extractor := binary.NewExtractor(afero.NewOsFs(), runtime.GOOS == "windows")
//	path := "/home/user/.cache/esptools/" + expected + "/esptool"
//	if _, err := extractor.ExtractTo(path, src, expected); err != nil {
//	    return err // *DigestError when the bytes do not match
//	}
//
//	// Later, re-check a cached file before trusting it.
//	verifier := binary.NewVerifier(afero.NewOsFs())
//	if err := verifier.VerifyFile(path, expected); err != nil {
//	    return err
//	}
package binary
