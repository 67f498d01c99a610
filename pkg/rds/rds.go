package rds

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"onair/backend/config"
)

// Encoder RDS 编码器客户端接口
// 编码器使用基于行的 telnet 协议（每条命令一行，回应 "+" 表示成功）。
type Encoder interface {
	// SendNowPlaying 推送正在播出的节目信息
	SendNowPlaying(ctx context.Context, info NowPlaying) error
}

// NowPlaying 推送给编码器的节目数据
type NowPlaying struct {
	PICode      string // 节目识别码（PTY/PI）
	IsStereo    bool
	DisplayText string // PS/RT 滚动文本
}

type tcpEncoder struct {
	addr    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewEncoder 创建 TCP 编码器客户端
// 每次推送建立短连接，编码器端无会话状态。
func NewEncoder(cfg *config.RDSConfig, logger *zap.Logger) Encoder {
	return &tcpEncoder{
		addr:    cfg.Addr,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (e *tcpEncoder) SendNowPlaying(ctx context.Context, info NowPlaying) error {
	dialer := net.Dialer{Timeout: e.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return fmt.Errorf("连接 RDS 编码器失败: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(e.timeout))
	}

	stereo := "0"
	if info.IsStereo {
		stereo = "1"
	}

	commands := []string{
		"PI=" + sanitize(info.PICode),
		"STEREO=" + stereo,
		"TEXT=" + sanitize(info.DisplayText),
	}

	reader := bufio.NewReader(conn)
	for _, cmd := range commands {
		if _, err := fmt.Fprintf(conn, "%s\r\n", cmd); err != nil {
			return fmt.Errorf("发送 RDS 命令失败: %w", err)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("读取 RDS 回应失败: %w", err)
		}
		if !strings.HasPrefix(strings.TrimSpace(line), "+") {
			return fmt.Errorf("RDS 编码器拒绝命令 %q: %s", cmd, strings.TrimSpace(line))
		}
	}

	e.logger.Debug("RDS 推送成功", zap.String("text", info.DisplayText))
	return nil
}

// sanitize 去除会破坏行协议的控制字符
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
