package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"voucher-go/internal/config"
	"voucher-go/internal/models"
	"voucher-go/internal/storage"
)

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 2 {
		fmt.Println("使用方法:")
		fmt.Println("  ./admin list-mints [limit]           - 列出最近铸造的代金券")
		fmt.Println("  ./admin list-trees [limit]           - 列出最近创建的 Merkle tree")
		fmt.Println("  ./admin show <mint|tree> <address>   - 显示某个地址的完成记录")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("VOUCHER_CONFIG"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	repo := storage.NewGormCompletionRepository(db)

	switch os.Args[1] {
	case "list-mints":
		listRecords(repo, models.CompletionKindVoucherMint, limitArg())
	case "list-trees":
		listRecords(repo, models.CompletionKindMerkleTree, limitArg())
	case "show":
		if len(os.Args) < 4 {
			log.Fatalf("需要指定类型和地址")
		}
		showRecord(repo, kindArg(os.Args[2]), os.Args[3])
	default:
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func limitArg() int {
	if len(os.Args) < 3 {
		return 20
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil || n <= 0 {
		log.Fatalf("无效的 limit: %s", os.Args[2])
	}
	return n
}

func kindArg(s string) models.CompletionKind {
	switch s {
	case "mint":
		return models.CompletionKindVoucherMint
	case "tree":
		return models.CompletionKindMerkleTree
	}
	log.Fatalf("未知类型: %s (应为 mint 或 tree)", s)
	return ""
}

func listRecords(repo storage.CompletionRepository, kind models.CompletionKind, limit int) {
	records, err := repo.ListByKind(context.Background(), kind, limit)
	if err != nil {
		log.Fatalf("查询失败: %v", err)
	}

	fmt.Printf("%s 记录 (%d 条):\n", kind, len(records))
	fmt.Println("--------------------------------------")
	for i, rec := range records {
		fmt.Printf("#%d ID: %d, 地址: %s, 时间: %s\n",
			i+1, rec.ID, rec.Address, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func showRecord(repo storage.CompletionRepository, kind models.CompletionKind, address string) {
	rec, err := repo.GetByAddress(context.Background(), kind, address)
	if err != nil {
		log.Fatalf("查询失败: %v", err)
	}
	if rec == nil {
		fmt.Printf("未找到地址 %s 的 %s 记录\n", address, kind)
		return
	}

	fmt.Printf("%s 记录 %d:\n", kind, rec.ID)
	fmt.Println("--------------------------------------")
	fmt.Printf("地址: %s\n", rec.Address)
	if rec.MerkleTree != "" {
		fmt.Printf("Merkle tree: %s\n", rec.MerkleTree)
	}
	if rec.MetadataURL != "" {
		fmt.Printf("图片: %s\n", rec.MetadataURL)
	}
	fmt.Printf("创建时间: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
}
