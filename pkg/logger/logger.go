// Package logger 提供带时间戳和颜色的分级控制台日志。
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	cInf  = color.New(color.FgCyan, color.Bold).SprintFunc()
	cWarn = color.New(color.FgYellow, color.Bold).SprintFunc()
	cErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	cSucc = color.New(color.FgGreen, color.Bold).SprintFunc()
	cFatl = color.New(color.BgRed, color.FgWhite, color.Bold).SprintFunc()
	cTime = color.New(color.FgHiBlack).SprintFunc()
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput 替换日志输出目标，传入nil表示保持原值。主要用于测试。
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// DisableColor 关闭颜色输出（例如日志被重定向到文件时）。
func DisableColor() {
	color.NoColor = true
}

func timeStamp() string {
	return cTime(time.Now().Format("2006-01-02 15:04:05"))
}

func write(w func() io.Writer, tag string, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(w(), "%s %s %s\n", timeStamp(), tag, msg)
}

func out() io.Writer    { return stdout }
func errOut() io.Writer { return stderr }

func Info(format string, v ...any) {
	write(out, cInf("[INFO]"), format, v...)
}

func Success(format string, v ...any) {
	write(out, cSucc("[OK]"), format, v...)
}

func Warn(format string, v ...any) {
	write(out, cWarn("[WARN]"), format, v...)
}

func Error(format string, v ...any) {
	write(errOut, cErr("[ERR]"), format, v...)
}

// Fatal 打印错误并以状态码1退出进程。
func Fatal(format string, v ...any) {
	write(errOut, cFatl("[FATAL]"), format, v...)
	os.Exit(1)
}

// gormWriter 把 gorm 的日志转发到本包。
type gormWriter struct{}

func (gormWriter) Printf(format string, v ...any) {
	write(out, cWarn("[SQL]"), format, v...)
}

// GormWriter 返回一个满足 gorm logger.Writer 接口的适配器。
func GormWriter() interface{ Printf(string, ...any) } {
	return gormWriter{}
}
