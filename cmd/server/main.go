package main

import (
	"log"
	"net/http"
	"os"

	"github.com/crgeee/reps/internal/config"
	"github.com/crgeee/reps/internal/serverapp"
)

func main() {
	cfgPath := os.Getenv("REPS_CONFIG")
	if cfgPath == "" {
		cfgPath = "reps.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	config.FromEnv(cfg)

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config:        cfg,
		DataDir:       cfg.Data.Dir,
		StaticDir:     "static",
		UseDiskStatic: serverapp.UseDiskStaticByEnv(),
		Logger:        log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}
