// Package files provides file system operations for the order pipeline.
//
// Discovery locates input datasets. When the configured input is a directory
// the newest .csv or .xlsx file inside it is used.
//
// Manager writes output files atomically (temp file plus rename) and computes
// the BLAKE2b-256 checksums recorded in the run manifest.
//
// Example usage:
//
//	input, err := files.NewDiscovery(paths.BaseDir).ResolveInput("data/raw")
//	if err != nil {
//	    return err
//	}
//
//	fm := files.NewManager(logger)
//	err = fm.WriteAtomic(paths.CleanedCSV, func(w io.Writer) error {
//	    return writeRows(w)
//	})
package files
