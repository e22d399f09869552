package controllers

import (
	"time"

	"github.com/bragfeed/bragfeed/app/repository"
)

func getRepositories() *repository.Repositories {
	return repository.GetGlobalRepositories()
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
