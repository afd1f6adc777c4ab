package domain

import "errors"

var (
	ErrNoOutlets              = errors.New("at least one outlet is required")
	ErrInvalidPitotPressure   = errors.New("pitot pressure must be greater than 0")
	ErrInvalidDiameter        = errors.New("outlet diameter must be greater than 0")
	ErrInvalidCoefficient     = errors.New("discharge coefficient must be greater than 0")
	ErrNonPositiveFlow        = errors.New("total flow must be greater than 0")
	ErrStaticNotAboveResidual = errors.New("static pressure must exceed residual pressure")
	ErrTargetNotBelowStatic   = errors.New("target residual pressure must be below static pressure")
)
