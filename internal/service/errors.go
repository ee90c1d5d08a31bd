package service

import "errors"

// ErrShuttingDown is returned by RunOnce once Shutdown has been called.
var ErrShuttingDown = errors.New("service is shutting down")
