package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// dailyLog 按 UTC 日期分文件的追加式 JSONL 日志：<dir>/<prefix>_<YYYYMMDD>.jsonl
type dailyLog struct {
	dir    string
	prefix string
}

func newDailyLog(dir, prefix string) (*dailyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	return &dailyLog{dir: dir, prefix: prefix}, nil
}

func (l *dailyLog) path(at time.Time) string {
	return DailyLogPath(l.dir, l.prefix, at)
}

// append 写入一行。每行一次 Write，依赖 O_APPEND 保证行级原子性。
func (l *dailyLog) append(at time.Time, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化日志行失败: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(l.path(at), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("写入日志失败: %w", err)
	}
	return f.Close()
}

// DailyLogPath 某一天（UTC）的日志文件路径
func DailyLogPath(dir, prefix string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.jsonl", prefix, at.UTC().Format("20060102")))
}

// ReadJSONL 逐行解析日志文件，保持写入顺序
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(sc.Bytes(), &item); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, item)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeJSONFile 覆盖写入缩进 JSON，必要时创建父目录
func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化失败: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// ReadJSONFile 读取 writeJSONFile 写出的文件
func ReadJSONFile[T any](path string) (T, error) {
	var out T
	b, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
