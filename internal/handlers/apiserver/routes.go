package apiserver

import (
	"io/fs"
	"net/http"
	"strings"

	"voucher-go/internal/models"

	"github.com/gorilla/mux"
)

// Routes 汇总 API 服务器用到的处理器。
type Routes struct {
	Upload     *UploadHandler
	Auth       *AuthHandler
	Contact    *ContactHandler
	Completion *CompletionHandler

	// StaticDir 非空时，把本地代金券图片目录挂载到 StaticURLPrefix 下。
	StaticDir       string
	StaticURLPrefix string
}

// NewRouter 注册所有 HTTP 路由。
func NewRouter(rt Routes) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// 方法检查由处理器自己完成，非 POST 返回空 body 的 405
	api.HandleFunc("/upload-voucher-image", rt.Upload.UploadVoucherImageHandler)

	api.HandleFunc("/auth/login", rt.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/contact", rt.Contact.SubmitContactHandler).Methods(http.MethodPost)

	api.HandleFunc("/vouchers/mints", rt.Completion.RecordHandler(models.CompletionKindVoucherMint)).Methods(http.MethodPost)
	api.HandleFunc("/vouchers/mints", rt.Completion.ListHandler(models.CompletionKindVoucherMint)).Methods(http.MethodGet)
	api.HandleFunc("/merkle-trees", rt.Completion.RecordHandler(models.CompletionKindMerkleTree)).Methods(http.MethodPost)
	api.HandleFunc("/merkle-trees", rt.Completion.ListHandler(models.CompletionKindMerkleTree)).Methods(http.MethodGet)

	if rt.StaticDir != "" {
		staticPath := strings.TrimSuffix(rt.StaticURLPrefix, "/") + "/"
		fileServer := http.FileServer(dotHidingFileSystem{http.Dir(rt.StaticDir)})
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, fileServer))
	}

	return r
}

// dotHidingFileSystem 不暴露隐藏文件和目录，包括上传过程中的临时文件。
type dotHidingFileSystem struct {
	http.FileSystem
}

func (fsys dotHidingFileSystem) Open(name string) (http.File, error) {
	for _, elem := range strings.Split(name, "/") {
		if strings.HasPrefix(elem, ".") {
			return nil, fs.ErrNotExist
		}
	}
	f, err := fsys.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	return dotHidingFile{f}, nil
}

// dotHidingFile 在目录列表中过滤掉隐藏项。
type dotHidingFile struct {
	http.File
}

func (f dotHidingFile) Readdir(n int) ([]fs.FileInfo, error) {
	entries, err := f.File.Readdir(n)
	visible := entries[:0]
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			visible = append(visible, entry)
		}
	}
	return visible, err
}
