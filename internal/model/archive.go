package model

import "time"

// Archive is a listing captured at one point in time, as written by the
// snapshot exporter.
type Archive struct {
	ID      string     `json:"id"`
	Source  string     `json:"source"` // backend base URL
	TakenAt time.Time  `json:"taken_at"`
	Nodes   []NodeItem `json:"nodes"`
}

// ArchiveInfo describes an archive without its nodes.
type ArchiveInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	TakenAt   time.Time `json:"taken_at"`
	NodeCount int       `json:"node_count"`
}

func (a *Archive) Info() ArchiveInfo {
	return ArchiveInfo{ID: a.ID, Source: a.Source, TakenAt: a.TakenAt, NodeCount: len(a.Nodes)}
}
