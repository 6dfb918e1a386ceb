package doccoll

import "context"

// BeforeInsert is called before a new document is validated and inserted.
type BeforeInsert interface {
	BeforeInsert(ctx context.Context) error
}

// AfterInsert is called after a document has been inserted.
type AfterInsert interface {
	AfterInsert(ctx context.Context) error
}

// BeforeSave is called by FetchEditSave after the mutation, before validation.
type BeforeSave interface {
	BeforeSave(ctx context.Context) error
}

// AfterSave is called after FetchEditSave has replaced the document.
type AfterSave interface {
	AfterSave(ctx context.Context) error
}

// AfterDelete is called on the removed snapshot returned by DeleteByID.
type AfterDelete interface {
	AfterDelete(ctx context.Context) error
}
