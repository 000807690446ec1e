package collect

import "fmt"

// Request 单个抓取请求
type Request struct {
	Url   string
	Phase string // listing 或 detail，仅用于日志
	Unit  int    // 页码或在账本中的序号
}

func (r *Request) String() string {
	return fmt.Sprintf("%s#%d %s", r.Phase, r.Unit, r.Url)
}
