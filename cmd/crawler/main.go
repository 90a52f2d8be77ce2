// Package main implements the entry point for the SneakDex web crawler
// service. It wires configuration, logging, the crawler instance and the
// monitor server together, then waits for either natural completion or an OS
// signal and shuts everything down gracefully.
//
// Usage:
//
//	Set environment variables for configuration (see the config package)
//	Run: ./crawler
//	Monitor: curl http://localhost:8080/health
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/config"
	"github.com/sneakyhydra/sneakdex/crawler/internal/crawler"
	"github.com/sneakyhydra/sneakdex/crawler/internal/logger"
	"github.com/sneakyhydra/sneakdex/crawler/internal/monitor"
)

// shutdownTimeout bounds the graceful shutdown before the process forces
// exit.
const shutdownTimeout = 30 * time.Second

type exitCode int

const (
	exitSuccess exitCode = iota
	exitConfigError
	exitLoggerError
	exitCrawlerCreationError
	exitCrawlerRuntimeError
	exitShutdownError
)

func main() {
	os.Exit(int(run()))
}

// run contains the main application logic and returns an exit code.
func run() exitCode {
	logrus.Info("SneakDex Crawler starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("Failed to load configuration")
		return exitConfigError
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize logger")
		return exitLoggerError
	}
	log.Info("Configuration and logging initialized")

	crawlerInstance, err := crawler.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to create crawler instance")
		return exitCrawlerCreationError
	}
	log.Info("Crawler instance created")

	monitor.New(crawlerInstance).Start()

	return runWithShutdown(crawlerInstance, log)
}

// runWithShutdown runs the crawler and handles signal-driven or natural
// termination.
func runWithShutdown(c *crawler.Crawler, log *logrus.Logger) exitCode {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	crawlerDone := make(chan error, 1)
	go func() {
		log.Info("Starting crawler main process")
		crawlerDone <- c.Start()
	}()

	var shutdownReason string
	var crawlerErr error

	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("received OS signal: %v", sig)
		log.WithField("signal", sig.String()).Warn("Shutdown signal received")

		// Bounded drain so a wedged crawler cannot block the shutdown path.
		select {
		case <-crawlerDone:
		case <-time.After(shutdownTimeout / 3):
			log.Warn("Timeout draining crawler completion; proceeding to shutdown")
		}

	case crawlerErr = <-crawlerDone:
		if crawlerErr != nil {
			shutdownReason = "crawler encountered fatal error"
			log.WithError(crawlerErr).Error("Crawler terminated with error")
		} else {
			shutdownReason = "crawler completed successfully"
			log.Info("Crawler completed all tasks")
		}
	}

	log.WithField("reason", shutdownReason).Info("Initiating graceful shutdown")

	if err := shutdownGracefully(c, log); err != nil {
		log.WithError(err).Error("Graceful shutdown encountered errors")
		return exitShutdownError
	}

	if crawlerErr != nil {
		return exitCrawlerRuntimeError
	}
	return exitSuccess
}

// shutdownGracefully runs Shutdown under a deadline.
func shutdownGracefully(c *crawler.Crawler, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic occurred during shutdown")
			}
		}()
		c.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		log.Error("Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout exceeded (%v)", shutdownTimeout)
	}
}
