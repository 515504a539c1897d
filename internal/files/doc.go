// Package files provides the file system side of report generation.
//
// Manager hands out Scratch directories: one per request, uniquely named,
// removed by Release once the pipeline has finished or failed. Nothing
// written to a Scratch outlives the request that created it.
//
// Discovery locates export files (.csv, .xlsx) for the batch CLI.
//
// Example usage:
//
//	manager := files.NewManager(cfg.Upload.TempDir, logger)
//	err := manager.WithScratch(func(s *files.Scratch) error {
//	    path, err := s.Save(header.Filename, upload, cfg.Upload.MaxBytes)
//	    if err != nil {
//	        return err
//	    }
//	    return process(path)
//	})
package files
