package repository

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrSlotConflict = errors.New("interval overlaps an active booking")
	ErrDuplicate    = errors.New("record already exists")
	ErrReferenced   = errors.New("record is still referenced")
	ErrStaleStatus  = errors.New("booking status changed concurrently")
)
