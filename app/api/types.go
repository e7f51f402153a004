package api

import (
	"github.com/lysyi3m/topic-agent/app/database"
	"github.com/lysyi3m/topic-agent/app/topic"
)

type GeneratorInterface interface {
	Run(channel Channel, engagements []database.Engagement) (string, error)
}

var _ GeneratorInterface = (*Generator)(nil)

type Handler struct {
	history   database.RunHistory
	topics    map[string]*topic.Profile
	topicIDs  []string
	generator GeneratorInterface
	baseURL   string
	version   string
}
