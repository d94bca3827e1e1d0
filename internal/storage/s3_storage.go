package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"voucher-go/internal/config"
	"voucher-go/internal/imtypes"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3VoucherImageStore 把代金券图片保存到 S3 (或 MinIO 等兼容存储)。
// 对象 key 为 <prefix>/<fileName>，返回的 URL 与本地存储相同，由前端站点代理访问。
type S3VoucherImageStore struct {
	client  *s3.Client
	cfg     config.S3Config
	baseURL string
	prefix  string
	log     *zap.Logger
}

// NewS3VoucherImageStore 根据配置创建 S3 客户端。
func NewS3VoucherImageStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*S3VoucherImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3VoucherImageStore{
		client:  client,
		cfg:     cfg.S3,
		baseURL: cfg.PublicURLPrefix,
		prefix:  strings.Trim(cfg.PublicURLPrefix, "/"),
		log:     log,
	}, nil
}

// EnsureDir 确保 bucket 存在。
func (s *S3VoucherImageStore) EnsureDir(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.BucketName),
	})
	if err == nil {
		return nil
	}

	s.log.Info("Creating bucket", zap.String("bucket", s.cfg.BucketName))
	input := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.BucketName)}
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("创建 bucket 失败 '%s': %w", s.cfg.BucketName, err)
	}
	return nil
}

// Stage 把上传内容写入系统临时目录。
func (s *S3VoucherImageStore) Stage(ctx context.Context, reader io.Reader, originalFileName, contentType string) (*imtypes.StagedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst, err := os.CreateTemp("", "voucher-upload-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: 创建临时文件失败: %v", ErrStoreUnavailable, err)
	}

	written, err := copyToStaging(dst, reader)
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: 关闭临时文件失败: %v", ErrStoreUnavailable, err)
	}

	return &imtypes.StagedFile{
		TempPath:         dst.Name(),
		OriginalFileName: originalFileName,
		ContentType:      contentType,
		Size:             written,
	}, nil
}

// Commit 上传临时文件到 S3，成功或失败后都会删除临时文件。
func (s *S3VoucherImageStore) Commit(ctx context.Context, staged *imtypes.StagedFile, fileName string) (*imtypes.StoredVoucherImage, error) {
	defer s.Discard(staged)

	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}

	f, err := os.Open(staged.TempPath)
	if err != nil {
		return nil, fmt.Errorf("打开临时文件失败: %w", err)
	}
	defer f.Close()

	key := s.objectKey(fileName)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.BucketName),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(staged.Size),
	}
	if staged.ContentType != "" {
		input.ContentType = aws.String(staged.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("上传到 S3 失败 '%s': %w", key, err)
	}

	s.log.Info("Voucher image uploaded to S3",
		zap.String("bucket", s.cfg.BucketName),
		zap.String("key", key),
		zap.Int64("size", staged.Size))

	return &imtypes.StoredVoucherImage{
		URL:         PublicURL(s.baseURL, fileName),
		Path:        key,
		Size:        staged.Size,
		ContentType: staged.ContentType,
		FileName:    fileName,
	}, nil
}

// Discard 删除临时文件。
func (s *S3VoucherImageStore) Discard(staged *imtypes.StagedFile) {
	if staged == nil || staged.TempPath == "" {
		return
	}
	_ = os.Remove(staged.TempPath)
}

func (s *S3VoucherImageStore) objectKey(fileName string) string {
	if s.prefix == "" {
		return fileName
	}
	return s.prefix + "/" + fileName
}
