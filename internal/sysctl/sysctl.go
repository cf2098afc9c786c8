package sysctl

import (
	"os/exec"
	"time"

	"buoyd/internal/logs"
)

// Команды жизненного цикла процесса: fire-and-forget, с задержкой,
// чтобы успеть отдать HTTP-ответ.

func Poweroff(delay time.Duration) {
	go run(delay, "poweroff")
}

func Reboot(delay time.Duration) {
	go run(delay, "reboot")
}

func run(delay time.Duration, cmd string) {
	time.Sleep(delay)
	if err := exec.Command("sudo", cmd).Run(); err != nil {
		logs.Logger.Errorf("sysctl %s: %v", cmd, err)
	}
}
