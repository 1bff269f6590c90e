package port

import (
	"time"

	"kbrag/internal/domain"
)

type Observer interface {
	Observe(event domain.Event)
}

type Clock interface {
	Now() time.Time
}
