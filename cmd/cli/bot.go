package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	botBinaryName   = "ytmm-bot"
	botStartTimeout = 15 * time.Second
	botPollInterval = 200 * time.Millisecond
)

// isBotRunning checks if the bot's admin API answers health checks
func isBotRunning(client *adminClient) bool {
	_, err := client.Health()
	return err == nil
}

// findBotBinary locates the ytmm-bot binary
func findBotBinary() (string, error) {
	// Same directory as the CLI binary first
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), botBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(botBinaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	commonPaths := []string{
		"/usr/local/bin/" + botBinaryName,
		"/usr/bin/" + botBinaryName,
		filepath.Join(home, "go/bin", botBinaryName),
		filepath.Join(home, ".local/bin", botBinaryName),
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", botBinaryName)
}

// startBotBackground starts the bot as a detached process
func startBotBackground(configPath string) (int, error) {
	botPath, err := findBotBinary()
	if err != nil {
		return 0, err
	}

	var args []string
	if configPath != "" {
		args = append(args, "-config", configPath)
	}

	cmd := exec.Command(botPath, args...)
	cmd.Env = os.Environ()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start bot: %w", err)
	}
	pid := cmd.Process.Pid

	// Reap the child if it exits while we are still polling
	go func() {
		_ = cmd.Wait()
	}()

	return pid, nil
}

// waitForBotReady polls the admin API until it answers or the timeout expires
func waitForBotReady(client *adminClient, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isBotRunning(client) {
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("bot did not answer within %v", timeout)
}
