// Package opr generates One Page Reports (OPR): single-page PDF summaries of
// school programs and activities, with a field table, up to six photos and a
// signature block.
//
// # Quick Start
//
// Build a record, create a generator, generate and close when done:
//
//	gen, err := opr.NewGenerator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	rec := opr.Record{NamaProgram: "Kejohanan Sukan", Tempat: "Padang Sekolah"}
//	result, err := gen.Generate(ctx, rec)
//	if err != nil {
//	    log.Fatal(opr.UserMessage(err))
//	}
//	os.WriteFile(result.FileName, result.PDF, 0o644)
//
// # Pipeline
//
//  1. The record is rendered into an HTML document from the embedded report
//     template. Empty fields show placeholders; the image grid always has six cells.
//  2. Headless Chrome (go-rod) lays the document out at A4 width and captures
//     the #report element as a PNG at twice the CSS resolution.
//  3. The PNG is placed on one PDF page 210mm wide whose height follows the
//     capture's aspect ratio, so a long report gives a taller page.
//
// # Editing
//
// State holds the record being edited. Update replaces one field, AddImages
// decodes a batch of image files concurrently and RemoveImage drops one.
// At most MaxImages images are kept: a batch that would exceed the limit is
// rejected whole.
//
//	st := opr.NewState()
//	_ = st.Update(opr.FieldNamaProgram, "Hari Sukan")
//	if _, err := st.AddImages(ctx, []opr.ImageSource{opr.FileImage("a.jpg")}); err != nil {
//	    fmt.Println(opr.UserMessage(err))
//	}
//	result, err := st.Generate(ctx, gen)
//
// # Parallel Processing
//
// For batches, GeneratorPool manages several browser instances:
//
//	pool := opr.NewGeneratorPool(opr.ResolvePoolSize(0))
//	defer pool.Close()
//
//	gen, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(gen)
//
// # Errors
//
// Stage failures wrap ErrRender, ErrCapture or ErrAssemble and can be
// checked with errors.Is. UserMessage maps any error to the Malay notice
// shown to teachers.
package opr
