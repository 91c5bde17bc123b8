package store

// CloseAndSwap closes the handle and runs the file swap Compact ends with.
func (s *Store) CloseAndSwap(tmpPath, path string) error {
	if err := s.db.Close(); err != nil {
		return err
	}
	return s.swap(tmpPath, path)
}
