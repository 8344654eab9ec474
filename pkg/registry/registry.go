package registry

import (
	"bytes"
	"encoding/json"
	"io"

	"pell/pkg/contract"
	dtuple "pell/plugins/decoder/tuple"
	rfs "pell/plugins/reader/filesystem"
	wjsonl "pell/plugins/writer/jsonl"
	wpacked "pell/plugins/writer/packed"
	wtable "pell/plugins/writer/table"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewDecoder 工厂签名：接收原样 JSON Options。每次调用返回独立状态的实例。
type NewDecoder func(raw json.RawMessage) (contract.Decoder, error)

// NewWriter 工厂签名：接收原样 JSON Options 与主输出流。
type NewWriter func(raw json.RawMessage, w io.Writer) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader（可透明解压 gzip/zstd）
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts)
	},
}

// Decoder 工厂注册表。
var Decoder = map[string]NewDecoder{
	// tuple: 生成器 --raw 输出的四元组 (u v i j)
	"tuple": func(raw json.RawMessage) (contract.Decoder, error) {
		var opts dtuple.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return dtuple.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// table: q\tp\tnorm 文本表（默认）
	"table": func(raw json.RawMessage, w io.Writer) (contract.Writer, error) {
		var opts wtable.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wtable.New(&opts, w), nil
	},
	// msgpack: 每条记录一个 msgpack map
	"msgpack": func(raw json.RawMessage, w io.Writer) (contract.Writer, error) {
		var opts wpacked.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wpacked.New(&opts, w), nil
	},
	// jsonl: JSON Lines
	"jsonl": func(raw json.RawMessage, w io.Writer) (contract.Writer, error) {
		var opts wjsonl.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wjsonl.New(&opts, w), nil
	},
}
