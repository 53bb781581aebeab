package xrotate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/omeyang/xwrench/pkg/util/xfile"
)

const (
	// TimestampLayout 轮转文件名中的 UTC 时间戳格式（秒级）
	TimestampLayout = "2006-01-02_15-04-05"

	// tempSuffixRange 临时文件名随机后缀取值范围（8 位十进制）
	tempSuffixRange = 100_000_000

	// maxNameAttempts 生成唯一文件名的最大尝试次数
	maxNameAttempts = 10_000
)

// LockPath 由日志文件路径推导旁路锁文件路径
//
//	LockPath("/var/log/app.log") // "/var/log/app.lock"
//	LockPath("/var/log/app.out") // "/var/log/app.out.lock"
func LockPath(filename string) string {
	return strings.TrimSuffix(filename, ".log") + ".lock"
}

// uniqueRotatedName 返回未被占用的轮转目标名
//
// 首选 <base>.<stamp>；同一秒内已存在时依次尝试 <base>.<stamp>.1、.2 ...
func uniqueRotatedName(base, stamp string) (string, error) {
	name := base + "." + stamp
	for i := 1; i <= maxNameAttempts; i++ {
		taken, err := xfile.Exists(name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s.%s.%d", base, stamp, i)
	}
	return "", fmt.Errorf("xrotate: no free rotated name for %s.%s", base, stamp)
}

// uniqueTempName 返回未被占用的 <base>.rotate.<8 位随机数>
func uniqueTempName(base string, randn func(int) int) (string, error) {
	if randn == nil {
		randn = rand.IntN
	}
	for range maxNameAttempts {
		name := fmt.Sprintf("%s.rotate.%08d", base, randn(tempSuffixRange))
		taken, err := xfile.Exists(name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("xrotate: no free temporary name for %s", base)
}
