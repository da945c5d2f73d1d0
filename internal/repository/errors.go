package repository

import "errors"

var ErrConfigNotFound = errors.New("retention config not found")
