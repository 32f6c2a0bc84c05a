package service

import (
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/notify"
	"github.com/bookly/booklibrary-service/internal/repository"
)

type Service struct {
	log         *zap.Logger
	repo        repository.Repository
	notifier    notify.Notifier
	senderEmail string
}

func NewService(repo repository.Repository, notifier notify.Notifier, senderEmail string, log *zap.Logger) *Service {
	return &Service{
		log:         log,
		repo:        repo,
		notifier:    notifier,
		senderEmail: senderEmail,
	}
}
