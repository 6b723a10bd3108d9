package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger. Every pool is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each pool to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// RollPool rolls count six-sided dice and logs the result at debug level.
//
// Postcondition: len(result.Results) == max(0, count).
func (r *Roller) RollPool(count int) PoolResult {
	res := Pool(count, r.src)
	r.logger.Debug("dice pool",
		zap.Int("count", len(res.Results)),
		zap.Ints("results", res.Results),
		zap.Int("total", res.Total),
	)
	return res
}
