// Package zvec is an embedded document store with vector similarity
// search.
//
// A collection lives in a single directory and holds documents: a string
// primary key plus typed scalar, vector, and array fields described by a
// schema. Dense vector fields can carry HNSW, IVF, or flat indexes; scalar
// fields can carry inverted indexes for filtering. Durability comes from a
// write-ahead log folded into compressed snapshots on flush.
//
// Basic usage:
//
//	schema := zvec.NewSchema("articles").
//		AddField(zvec.FieldSchema{Name: "title", DataType: zvec.DataTypeString}).
//		AddVectorField("embedding", zvec.DataTypeVectorFP32, 128).
//		AddIndex("embedding", zvec.NewHNSWIndexParams())
//
//	coll, err := zvec.CreateCollection(ctx, "./articles", schema)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer coll.Close()
//
//	doc := zvec.NewDoc("a1")
//	doc.SetString("title", "hello")
//	doc.SetVectorFloat32("embedding", embedding)
//	if errs := coll.Upsert(ctx, doc); errs[0] != nil {
//		log.Fatal(errs[0])
//	}
//
//	hits, err := coll.Search(ctx, zvec.NewVectorQuery("embedding", query))
//
// Batch writes report one result per document, so a single bad document
// never fails its neighbors. Every error returned by this package is an
// *Error carrying a Code; CodeOf extracts it.
package zvec
