package qdex

// The QDE Project rule set: one rule group per entity, composed to match the
// Project tree shape. Built once at package init and shared by every
// validation; rules are immutable.

var documentRule = newDocumentRule()

// validateDocument checks a project object against the QDE shape rules.
// Paths are relative to the project root.
func validateDocument(v any) Issues {
	return documentRule.check("", v)
}

func newDocumentRule() rule {
	directionVocab := enum("Associative", "OneWay", "Bidirectional")

	description := field("Description", text())
	noteRefs := field("NoteRef", list(reference()))

	coding := object(
		req("guid", guid()),
		field("creatingUser", guid()),
		field("creationDateTime", dateTime()),
		req("CodeRef", exactlyOne(reference())),
		noteRefs,
	)
	codings := field("Coding", list(coding))

	variableValue := object(
		req("VariableRef", reference()),
		field("TextValue", text()),
		field("BooleanValue", boolean()),
		field("IntegerValue", integer()),
		field("FloatValue", float()),
		field("DateValue", date()),
		field("DateTimeValue", dateTime()),
		choice("TextValue", "BooleanValue", "IntegerValue", "FloatValue", "DateValue", "DateTimeValue"),
	)
	variableValues := field("VariableValue", list(variableValue))

	// Shared base attributes of every source variant.
	sourceBase := []any{
		req("guid", guid()),
		field("name", text()),
		field("creatingUser", guid()),
		field("creationDateTime", dateTime()),
		field("modifyingUser", guid()),
		field("modifiedDateTime", dateTime()),
		description,
		noteRefs,
		variableValues,
		codings,
	}

	selectionBase := []any{
		req("guid", guid()),
		field("name", text()),
		field("creatingUser", guid()),
		field("creationDateTime", dateTime()),
		field("modifyingUser", guid()),
		field("modifiedDateTime", dateTime()),
		description,
		codings,
		noteRefs,
	}

	plainTextSelection := object(append(selectionBase,
		req("startPosition", integer()),
		req("endPosition", integer()),
	)...)

	pictureSelection := object(append(selectionBase,
		req("firstX", integer()),
		req("firstY", integer()),
		req("secondX", integer()),
		req("secondY", integer()),
	)...)

	audioSelection := object(append(selectionBase,
		req("begin", integer()),
		req("end", integer()),
	)...)

	videoSelection := object(append(selectionBase,
		req("begin", integer()),
		req("end", integer()),
	)...)

	transcriptSelection := object(append(selectionBase,
		field("fromSyncPoint", guid()),
		field("toSyncPoint", guid()),
	)...)

	textSource := object(append(sourceBase,
		field("richTextPath", text()),
		field("plainTextPath", text()),
		field("PlainTextContent", text()),
		field("PlainTextSelection", list(plainTextSelection)),
		mutex("plainTextPath", "PlainTextContent"),
	)...)

	pdfSelection := object(append(selectionBase,
		req("page", integer()),
		req("firstX", integer()),
		req("firstY", integer()),
		req("secondX", integer()),
		req("secondY", integer()),
		field("Representation", textSource),
	)...)

	pictureSource := object(append(sourceBase,
		field("path", text()),
		field("currentPath", text()),
		field("TextDescription", text()),
		field("PictureSelection", list(pictureSelection)),
	)...)

	pdfSource := object(append(sourceBase,
		field("path", text()),
		field("currentPath", text()),
		field("Representation", textSource),
		field("PDFSelection", list(pdfSelection)),
	)...)

	syncPoint := object(
		req("guid", guid()),
		field("timeStamp", integer()),
		field("position", integer()),
	)

	transcript := object(
		req("guid", guid()),
		field("name", text()),
		field("richTextPath", text()),
		field("plainTextPath", text()),
		field("creatingUser", guid()),
		field("creationDateTime", dateTime()),
		field("modifyingUser", guid()),
		field("modifiedDateTime", dateTime()),
		description,
		noteRefs,
		field("PlainTextContent", text()),
		field("SyncPoint", list(syncPoint)),
		field("TranscriptSelection", list(transcriptSelection)),
		mutex("plainTextPath", "PlainTextContent"),
	)

	audioSource := object(append(sourceBase,
		field("path", text()),
		field("currentPath", text()),
		field("Transcript", list(transcript)),
		field("AudioSelection", list(audioSelection)),
	)...)

	videoSource := object(append(sourceBase,
		field("path", text()),
		field("currentPath", text()),
		field("Transcript", list(transcript)),
		field("VideoSelection", list(videoSelection)),
	)...)

	sources := group(
		field("TextSource", list(textSource)),
		field("PictureSource", list(pictureSource)),
		field("PDFSource", list(pdfSource)),
		field("AudioSource", list(audioSource)),
		field("VideoSource", list(videoSource)),
	)

	user := object(
		req("guid", guid()),
		field("name", text()),
		field("id", text()),
	)

	// Code is recursive: the child-Code rule is resolved lazily so building
	// the rule set terminates.
	var code rule
	code = object(
		req(attributesKey, object(
			req("guid", guid()),
			req("name", text()),
			req("isCodable", boolean()),
			field("color", color()),
		)),
		description,
		noteRefs,
		field("Code", list(lazy(func() rule { return code }))),
	)

	variable := object(
		req("guid", guid()),
		req("name", text()),
		req("typeOfVariable", enum("Text", "Boolean", "Integer", "Float", "Date", "DateTime")),
		description,
	)

	caseRule := object(
		req("guid", guid()),
		field("name", text()),
		description,
		field("CodeRef", list(reference())),
		variableValues,
		field("SourceRef", list(reference())),
		field("SelectionRef", list(reference())),
	)

	note := object(
		req("guid", guid()),
		field("name", text()),
		field("richTextPath", text()),
		field("plainTextPath", text()),
		field("creatingUser", guid()),
		field("creationDateTime", dateTime()),
		field("modifyingUser", guid()),
		field("modifiedDateTime", dateTime()),
		description,
		field("PlainTextContent", text()),
		noteRefs,
	)

	link := object(
		req("guid", guid()),
		field("name", text()),
		field("direction", directionVocab),
		field("color", color()),
		field("originGUID", guid()),
		field("targetGUID", guid()),
		noteRefs,
	)

	set := object(
		req("guid", guid()),
		req("name", text()),
		description,
		field("MemberCode", list(reference())),
		field("MemberSource", list(reference())),
		field("MemberNote", list(reference())),
	)

	vertex := object(
		req("guid", guid()),
		field("representedGUID", guid()),
		field("name", text()),
		req("firstX", integer()),
		req("firstY", integer()),
		field("secondX", integer()),
		field("secondY", integer()),
		field("shape", enum("Person", "Oval", "Rectangle", "RoundedRectangle", "Star",
			"LeftTriangle", "RightTriangle", "UpTriangle", "DownTriangle", "Note")),
		field("color", color()),
	)

	edge := object(
		req("guid", guid()),
		field("representedGUID", guid()),
		field("name", text()),
		req("sourceVertex", guid()),
		req("targetVertex", guid()),
		field("color", color()),
		field("direction", directionVocab),
		field("lineStyle", enum("dotted", "dashed", "solid")),
	)

	graph := object(
		req("guid", guid()),
		field("name", text()),
		field("Vertex", list(vertex)),
		field("Edge", list(edge)),
	)

	return object(
		req(attributesKey, object(
			req("name", text()),
			field("origin", text()),
			field("basePath", text()),
			field("xmlns", text()),
			field("creatingUserGUID", guid()),
			field("creationDateTime", dateTime()),
			field("modifyingUserGUID", guid()),
			field("modifiedDateTime", dateTime()),
		)),
		field("Users", group(field("User", list(user)))),
		field("CodeBook", group(field("Codes", group(field("Code", list(code)))))),
		field("Variables", group(field("Variable", list(variable)))),
		field("Cases", group(field("Case", list(caseRule)))),
		field("Sources", sources),
		field("Notes", group(field("Note", list(note)))),
		field("Links", group(field("Link", list(link)))),
		field("Sets", group(field("Set", list(set)))),
		field("Graphs", group(field("Graph", list(graph)))),
		description,
		noteRefs,
	)
}
