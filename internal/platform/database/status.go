package database

import (
	"sync"
	"time"

	"github.com/SlpAus/contact-form-backend/pkg/logger"
)

// Status 线程安全地记录数据库最近一次探测的结果。
type Status struct {
	mu        sync.RWMutex
	checked   bool
	healthy   bool
	lastErr   string
	checkedAt time.Time
}

// Snapshot 是 Status 在某一时刻的只读副本。
type Snapshot struct {
	Checked   bool
	Healthy   bool
	LastError string
	CheckedAt time.Time
}

func NewStatus() *Status {
	return &Status{}
}

// Update 记录一次探测结果，只在状态发生变化时打印日志。
func (s *Status) Update(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	healthy := err == nil
	changed := !s.checked || s.healthy != healthy

	s.checked = true
	s.healthy = healthy
	s.checkedAt = time.Now()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}

	if !changed {
		return
	}
	if healthy {
		logger.Success("健康检查: 数据库状态 -> [可用]")
	} else {
		logger.Warn("健康检查: 数据库状态 -> [不可用]: %v", err)
	}
}

// IsHealthy 在尚未探测过时返回 false。
func (s *Status) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checked && s.healthy
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Checked:   s.checked,
		Healthy:   s.healthy,
		LastError: s.lastErr,
		CheckedAt: s.checkedAt,
	}
}
