// Command distsync delivers installable payloads to every configured
// distribution point and reports per-repository outcomes.
//
// Usage:
//
//	distsync -config distsync.yaml copy <file> [object-id]
//	distsync -config distsync.yaml exists <filename>
//	distsync -config distsync.yaml delete <filename>
//	distsync -config distsync.yaml mount
//	distsync -config distsync.yaml umount
//	distsync -config distsync.yaml list
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/marmos91/distsync/internal/logger"
	"github.com/marmos91/distsync/pkg/config"
	"github.com/marmos91/distsync/pkg/distpoint"
	"github.com/marmos91/distsync/pkg/distpoint/upload"
)

func main() {
	configPath := flag.String("config", "distsync.yaml", "Path to configuration file")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall deadline for the operation")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *timeout, flag.Args()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	session := upload.Session{
		BaseURL:  cfg.Server.BaseURL,
		Username: cfg.Server.Username,
		Password: cfg.Server.Password,
		Client:   &http.Client{Timeout: timeout},
	}
	collab := config.Collaborators{
		Session: session,
		Catalog: newRESTCatalog(session),
	}

	repos, err := config.BuildRepositories(ctx, cfg, collab)
	if err != nil {
		return err
	}
	points := distpoint.New(repos...)

	switch cmd := args[0]; cmd {
	case "copy":
		if len(args) < 2 {
			return fmt.Errorf("usage: distsync copy <file> [object-id]")
		}
		objectID := 0
		if len(args) > 2 {
			objectID, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid object id %q", args[2])
			}
		}
		result, err := points.Copy(ctx, args[1], objectID)
		printOutcomes(result)
		return err

	case "exists":
		if len(args) != 2 {
			return fmt.Errorf("usage: distsync exists <filename>")
		}
		results, err := points.Exists(ctx, args[1])
		printExistence(results)
		return err

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: distsync delete <filename>")
		}
		result, err := points.Delete(ctx, args[1])
		printOutcomes(result)
		return err

	case "mount":
		result, err := points.MountAll(ctx)
		printOutcomes(result)
		return err

	case "umount":
		result, err := points.UnmountAll(ctx, true)
		printOutcomes(result)
		return err

	case "list":
		for _, repo := range points.Repositories() {
			fmt.Println(repo)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printOutcomes(result distpoint.BatchResult) {
	for _, outcome := range result.Outcomes {
		status := "ok"
		if outcome.Err != nil {
			status = outcome.Err.Error()
		}
		fmt.Printf("%-40s %s\n", outcome.Repository, status)
	}
}

func printExistence(results map[string]distpoint.Existence) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-40s %s\n", name, results[name])
	}
}
