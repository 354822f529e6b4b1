// Dev entrypoint: an in-memory server pre-seeded with sample prep tasks.
// The production binary lives in cmd/server.
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/afero"

	"github.com/crgeee/reps/internal/config"
	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/serverapp"
	"github.com/crgeee/reps/internal/task"
)

const PORT = "8080"

func main() {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	fsys := afero.NewMemMapFs()
	if err := seedSampleTasks(fsys, cfg.Data.Dir); err != nil {
		log.Fatal(err)
	}

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config:        cfg,
		DataDir:       cfg.Data.Dir,
		UseDiskStatic: serverapp.UseDiskStaticByEnv(),
		Logger:        log.Default(),
		FS:            fsys,
	})
	if err != nil {
		log.Fatal(err)
	}

	addr := ":" + PORT
	fmt.Printf("reps (dev, in-memory) listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func seedSampleTasks(fsys afero.Fs, dataDir string) error {
	repo, err := task.NewFileRepo(fsys, dataDir)
	if err != nil {
		return err
	}

	yesterday := "2000-01-01" // far past: shows up as overdue immediately

	seeds := []model.Task{
		{Title: "Two pointers drills", Topic: model.TopicAlgorithms, Notes: "LC 167, 15, 42"},
		{Title: "Design a URL shortener", Topic: model.TopicSystemDesign},
		{Title: "Tell me about a conflict", Topic: model.TopicBehavioral, NextReviewDate: yesterday},
		{Title: "Index types and when they help", Topic: model.TopicDatabases},
		{Title: "TCP handshake walkthrough", Topic: model.TopicNetworking, NextReviewDate: yesterday},
	}
	for _, t := range seeds {
		if _, err := repo.Create(t); err != nil {
			return err
		}
	}
	return nil
}
