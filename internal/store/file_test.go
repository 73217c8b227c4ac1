// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/ledgernotes/ledgernotes/internal/store"
)

var _ = Describe("FileStore", func() {
	var (
		ctx  context.Context
		dir  string
		path string
		fs   *store.FileStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "db.json")

		var err error
		fs, err = store.NewFileStore(path)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewFileStore", func() {
		It("rejects an empty path", func() {
			_, err := store.NewFileStore("")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Read", func() {
		It("creates an empty document when the file is absent", func() {
			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Users).To(BeEmpty())
			Expect(path).To(BeAnExistingFile())
		})

		It("fails with a storage error on corrupt JSON", func() {
			Expect(os.WriteFile(path, []byte("{users"), 0o600)).To(Succeed())

			_, err := fs.Read(ctx)
			Expect(err).To(MatchError(store.ErrStorage))
		})

		It("fails with a storage error on structurally invalid documents", func() {
			Expect(os.WriteFile(path, []byte(`{"users":"nope"}`), 0o600)).To(Succeed())

			_, err := fs.Read(ctx)
			Expect(err).To(MatchError(store.ErrStorage))
		})

		It("rejects documents from a future major version", func() {
			Expect(os.WriteFile(path, []byte(`{"version":"2.0.0","users":[]}`), 0o600)).To(Succeed())

			_, err := fs.Read(ctx)
			Expect(err).To(MatchError(store.ErrStorage))
		})

		It("accepts documents without a version field", func() {
			Expect(os.WriteFile(path, []byte(`{"users":[]}`), 0o600)).To(Succeed())

			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Users).To(BeEmpty())
		})

		It("migrates the legacy password key on read", func() {
			legacy := `{"users":[{"id":"1","username":"alice","password":"$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy","progress":["ias2"]}]}`
			Expect(os.WriteFile(path, []byte(legacy), 0o600)).To(Succeed())

			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Users).To(HaveLen(1))
			Expect(doc.Users[0].Username).To(Equal("alice"))
			Expect(doc.Users[0].PasswordHash).To(HavePrefix("$2a$"))
			Expect(doc.Users[0].Progress).To(Equal([]string{"ias2"}))
		})

		It("persists the migrated shape on the next write", func() {
			legacy := `{"users":[{"id":"1","username":"alice","password":"h","progress":[]}]}`
			Expect(os.WriteFile(path, []byte(legacy), 0o600)).To(Succeed())

			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fs.Write(ctx, doc)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"passwordHash"`))
			Expect(string(data)).NotTo(ContainSubstring(`"password"` + `:`))
		})

		It("rejects documents carrying both password keys", func() {
			mixed := `{"users":[{"id":"1","username":"alice","password":"old","passwordHash":"new","progress":[]}]}`
			Expect(os.WriteFile(path, []byte(mixed), 0o600)).To(Succeed())

			_, err := fs.Read(ctx)
			Expect(err).To(MatchError(store.ErrStorage))
		})

		It("fails when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := fs.Read(cancelled)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Write", func() {
		It("round-trips the user set", func() {
			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())

			doc.Users = append(doc.Users,
				store.User{ID: "1", Username: "alice", PasswordHash: "h1", Progress: []string{"ias2", "ias10"}},
				store.User{ID: "2", Username: "bob", PasswordHash: "h2", Progress: []string{}},
			)
			Expect(fs.Write(ctx, doc)).To(Succeed())

			got, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Users).To(Equal(doc.Users))
		})

		It("writes human-readable indented JSON", func() {
			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			doc.Users = append(doc.Users, store.User{ID: "1", Username: "alice", PasswordHash: "h", Progress: []string{}})
			Expect(fs.Write(ctx, doc)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("\n  \"users\""))

			var parsed map[string]any
			Expect(json.Unmarshal(data, &parsed)).To(Succeed())
		})

		It("stamps the current document version", func() {
			doc := &store.Document{Users: []store.User{}}
			Expect(fs.Write(ctx, doc)).To(Succeed())

			got, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Version).To(Equal(store.DocumentVersion))
		})

		It("rejects duplicate usernames before touching the disk", func() {
			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			before, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			doc.Users = append(doc.Users,
				store.User{ID: "1", Username: "alice", PasswordHash: "h", Progress: []string{}},
				store.User{ID: "2", Username: "alice", PasswordHash: "h", Progress: []string{}},
			)
			Expect(fs.Write(ctx, doc)).To(MatchError(store.ErrDuplicateUsername))

			after, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("rejects a nil document", func() {
			Expect(fs.Write(ctx, nil)).To(HaveOccurred())
		})

		It("leaves no temp files behind", func() {
			doc, err := fs.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fs.Write(ctx, doc)).To(Succeed())

			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("db.json"))
		})

		It("fails with a storage error when the directory vanishes", func() {
			missing := filepath.Join(dir, "gone", "db.json")
			broken, err := store.NewFileStore(missing)
			Expect(err).NotTo(HaveOccurred())

			Expect(broken.Write(ctx, store.NewDocument())).To(MatchError(store.ErrStorage))
		})
	})
})
