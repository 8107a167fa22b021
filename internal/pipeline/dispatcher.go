package pipeline

import (
	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type Dispatcher struct {
	LogChan     chan *domain.FillStatus
	AlertChan   chan *domain.FillStatus
	PublishChan chan *domain.FillStatus
}

func NewDispatcher(logSize, alertSize, publishSize int) *Dispatcher {
	return &Dispatcher{
		LogChan:     make(chan *domain.FillStatus, logSize),
		AlertChan:   make(chan *domain.FillStatus, alertSize),
		PublishChan: make(chan *domain.FillStatus, publishSize),
	}
}

// Dispatch never blocks the scheduler; a full channel drops the status and
// counts it.
func (d *Dispatcher) Dispatch(st *domain.FillStatus) {
	select {
	case d.LogChan <- st:
	default:
		metrics.StatusLogChannelDrops.Add(1)
	}

	select {
	case d.AlertChan <- st:
	default:
		metrics.AlertChannelDrops.Add(1)
	}

	select {
	case d.PublishChan <- st:
	default:
		metrics.PublishChannelDrops.Add(1)
	}
}

func (d *Dispatcher) Close() {
	close(d.LogChan)
	close(d.AlertChan)
	close(d.PublishChan)
}
